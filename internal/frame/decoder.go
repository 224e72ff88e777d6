package frame

// Decoder holds the carry-over buffer of one connection. It is not safe for
// concurrent use; the session serialises access.
type Decoder struct {
	format Format
	buffer string
}

// NewDecoder returns a decoder for the given format with an empty buffer.
func NewDecoder(format Format) *Decoder {
	return &Decoder{format: format}
}

// Feed appends chunk and returns the complete frames it produced.
func (d *Decoder) Feed(chunk string) []string {
	var frames []string
	d.buffer, frames = Extract(d.format, d.buffer, chunk)
	return frames
}

// Format reports the active wire format.
func (d *Decoder) Format() Format {
	return d.format
}

// SetFormat switches formats. Any carry-over belongs to the old format and
// is dropped.
func (d *Decoder) SetFormat(format Format) {
	d.format = format
	d.buffer = ""
}

// Reset discards the carry-over buffer.
func (d *Decoder) Reset() {
	d.buffer = ""
}

// Pending returns the size of the carry-over buffer in bytes.
func (d *Decoder) Pending() int {
	return len(d.buffer)
}
