package session

import (
	"maps"
	"slices"
	"time"

	"github.com/yegorkir/aqs/internal/catalog"
)

// SharePayload lists the session's answers in the order they were given.
func (e *Engine) SharePayload() SharePayload {
	p := SharePayload{
		SessionID:  e.st.SessionID,
		ExportedAt: time.Now().UnixMilli(),
		Answers:    make([]ShareAnswer, 0, len(e.st.Answers)),
	}
	for i, rec := range e.st.Answers {
		a := ShareAnswer{
			Order: i + 1,
			QID:   rec.QID,
			Type:  string(rec.Kind),
			TS:    rec.At.UnixMilli(),
		}
		switch rec.Kind {
		case catalog.KindChoice:
			oid := rec.OptionID
			a.OptionID = &oid
		case catalog.KindSlider:
			v := rec.Value
			a.Value = &v
		case catalog.KindSafety:
			a.Selections = slices.Clone(rec.Selections)
			a.Levels = maps.Clone(rec.Levels)
		}
		p.Answers = append(p.Answers, a)
	}
	return p
}
