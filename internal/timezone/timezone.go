package timezone

import "time"

// SaoPaulo is the timezone every NFC-e timestamp is anchored to.
// The emission date printed on the note is wall-clock time at the
// merchant, which for SEF/SC is always America/Sao_Paulo.
var SaoPaulo *time.Location

func init() {
	var err error
	SaoPaulo, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
}
