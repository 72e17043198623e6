// pkg/registry/schema.go
package registry

// FormRegistry describes every form variant the service can render.
type FormRegistry struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Variants    []FormVariant `json:"variants"`
}

// FormVariant is the data-driven part of one form: which fields it shows,
// which companies it offers and how it reacts to a successful submission.
type FormVariant struct {
	ID                       string     `json:"id"`
	Title                    string     `json:"title"`
	SubmitLabel              string     `json:"submitLabel"`
	Fields                   []string   `json:"fields"`
	Empresas                 []string   `json:"empresas"`
	PassAfiliacion           bool       `json:"passAfiliacion"`
	ResetOnSuccess           bool       `json:"resetOnSuccess"`
	TrackBusy                bool       `json:"trackBusy"`
	SuccessMessage           string     `json:"successMessage"`
	SuccessMessageAfiliacion string     `json:"successMessageAfiliacion"`
	Documents                []Document `json:"documents,omitempty"`
}

// Document is a static file the form can open in its viewer dialog.
type Document struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}
