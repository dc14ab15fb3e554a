package render

import "errors"

var ErrNotEditing = errors.New("no section is being edited")

// Editor holds the WYSIWYG buffer of the section being edited. It remembers
// the last saved buffer of every section so reopening a section shows what
// was saved rather than a fresh render. An Editor is not safe for concurrent
// use.
type Editor struct {
	cache   map[string]string
	active  string
	buffer  string
	editing bool
}

func NewEditor() *Editor {
	return &Editor{cache: map[string]string{}}
}

// Begin opens sectionID for editing and returns the buffer. The buffer is
// seeded once: calling Begin again for the open section keeps the edits.
func (e *Editor) Begin(sectionID, displayMarkup string) string {
	if e.editing && e.active == sectionID {
		return e.buffer
	}

	e.active = sectionID
	e.editing = true
	if cached, ok := e.cache[sectionID]; ok {
		e.buffer = cached
	} else {
		e.buffer = ToEditableBuffer(displayMarkup)
	}
	return e.buffer
}

func (e *Editor) Update(buffer string) error {
	if !e.editing {
		return ErrNotEditing
	}
	e.buffer = buffer
	return nil
}

func (e *Editor) Buffer() string {
	return e.buffer
}

// Active returns the id of the open section.
func (e *Editor) Active() (string, bool) {
	return e.active, e.editing
}

// Save closes the open section, caches its buffer and returns the content
// to store.
func (e *Editor) Save() (sectionID, content string, err error) {
	if !e.editing {
		return "", "", ErrNotEditing
	}
	e.cache[e.active] = e.buffer
	sectionID, content = e.active, FromEditableBuffer(e.buffer)
	e.Cancel()
	return sectionID, content, nil
}

// Cancel closes the open section without saving.
func (e *Editor) Cancel() {
	e.active = ""
	e.buffer = ""
	e.editing = false
}
