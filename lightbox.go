package csvstory

// ClickTarget identifies what a click inside the open lightbox landed on.
type ClickTarget int

// Click targets.
const (
	ClickImage ClickTarget = iota
	ClickClose
	ClickBackdrop
)

// Lightbox is the full-size image modal. Open and Close are idempotent.
type Lightbox struct {
	Visible bool
	Src     string
	Caption string
}

// Open shows src with its caption, replacing any image already shown.
func (l *Lightbox) Open(src, caption string) {
	l.Visible = true
	l.Src = src
	l.Caption = caption
}

// Close hides the modal.
func (l *Lightbox) Close() {
	*l = Lightbox{}
}

// Click handles a click on target. Clicks on the image itself are swallowed;
// the close control and the backdrop close the modal.
func (l *Lightbox) Click(target ClickTarget) {
	switch target {
	case ClickClose, ClickBackdrop:
		l.Close()
	}
}
