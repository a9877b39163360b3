package pipeline

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// WriteNDJSON writes the staged batch as newline-delimited JSON, the same
// payload shape the staging load carries.
func WriteNDJSON(w io.Writer, rows []model.StagedRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "pipeline: encode row %q", r.Query)
		}
	}
	return nil
}
