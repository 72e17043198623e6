package registro

import (
	"servicredit-registro/internal/common/errors"
	"servicredit-registro/pkg/registry"
)

const fallbackDocumentTitle = "Política"

// Dialog is the document viewer modal.
type Dialog struct {
	Open     bool   `json:"open"`
	Document string `json:"document,omitempty"`
	Path     string `json:"path,omitempty"`
	Title    string `json:"title,omitempty"`
}

func (d *Dialog) open(docs []registry.Document, id string) error {
	for _, doc := range docs {
		if doc.ID != id {
			continue
		}
		title := doc.Title
		if title == "" {
			title = fallbackDocumentTitle
		}
		*d = Dialog{Open: true, Document: doc.ID, Path: doc.Path, Title: title}
		return nil
	}
	return errors.NewUnknownDocumentError(id)
}

// close hides the modal and keeps the last document selected.
func (d *Dialog) close() {
	d.Open = false
}
