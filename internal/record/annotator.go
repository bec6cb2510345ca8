package record

// Annotator attributes output records to the person who labeled them.
// Unset fields are written as null.
type Annotator struct {
	ID    *string `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// NewAnnotator returns nil when every field is empty.
func NewAnnotator(id, name, email string) *Annotator {
	if id == "" && name == "" && email == "" {
		return nil
	}
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return &Annotator{ID: opt(id), Name: opt(name), Email: opt(email)}
}

// Summary renders "id name <email>" for report headers.
func (a *Annotator) Summary() string {
	if a == nil {
		return ""
	}
	val := func(p *string, def string) string {
		if p == nil {
			return def
		}
		return *p
	}
	return val(a.ID, "?") + " " + val(a.Name, "") + " <" + val(a.Email, "") + ">"
}
