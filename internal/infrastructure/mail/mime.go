package mail

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"
	"time"
)

const (
	crlf          = "\r\n"
	base64LineLen = 76
)

// Field is a single header line.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields. Order is preserved on output.
type Header []Field

// Set replaces the value of name or appends it.
func (h *Header) Set(name, value string) {
	value = sanitizeHeaderValue(value)
	for i := range *h {
		if strings.EqualFold((*h)[i].Name, name) {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Field{Name: name, Value: value})
}

// Get returns the first value for name.
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func (h Header) writeTo(w *bytes.Buffer) {
	for _, f := range h {
		w.WriteString(f.Name)
		w.WriteString(": ")
		w.WriteString(f.Value)
		w.WriteString(crlf)
	}
}

// Part is a MIME entity. A part with Children is multipart and is delimited
// by Boundary; otherwise Body holds the already-encoded content.
type Part struct {
	Header   Header
	Body     []byte
	Children []*Part
	Boundary string
}

func (p *Part) writeBody(w *bytes.Buffer) {
	if len(p.Children) == 0 {
		w.Write(p.Body)
		return
	}
	for _, child := range p.Children {
		w.WriteString("--" + p.Boundary + crlf)
		child.Header.writeTo(w)
		w.WriteString(crlf)
		child.writeBody(w)
		w.WriteString(crlf)
	}
	w.WriteString("--" + p.Boundary + "--" + crlf)
}

// Message is a complete RFC 5322 message: top-level headers followed by the
// root entity.
type Message struct {
	Header Header
	Root   *Part
}

// Bytes serializes the message with CRLF line endings.
func (m *Message) Bytes() []byte {
	var buf bytes.Buffer
	m.Header.writeTo(&buf)
	m.Root.Header.writeTo(&buf)
	buf.WriteString(crlf)
	m.Root.writeBody(&buf)
	return buf.Bytes()
}

// WriteTo implements io.WriterTo
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Bytes())
	return int64(n), err
}

// Attachment is a binary file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Envelope describes an outgoing invoice email.
type Envelope struct {
	InvoiceID string
	FromName  string
	FromEmail string
	ReplyTo   string
	To        string
	Subject   string
	BodyText  string
	Attached  Attachment
}

// BuildOptions fixes the per-send values of a message.
type BuildOptions struct {
	Date      time.Time
	MessageID string
	// BoundarySeed determines the multipart boundaries. Defaults to MessageID.
	BoundarySeed string
}

// ErrInvalidEnvelope is returned when an envelope cannot be turned into a message.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// MessageID returns a unique id for an invoice email sent at t.
func MessageID(invoiceID, fromEmail string, t time.Time) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(fromEmail, "@"); ok && d != "" {
		domain = d
	}
	return fmt.Sprintf("<invoice-%s-%d@%s>", invoiceID, t.UnixNano(), domain)
}

// BuildMessage assembles a multipart/mixed message with a text/html
// alternative body and the PDF attachment.
func BuildMessage(env Envelope, opts BuildOptions) (*Message, error) {
	to, err := netmail.ParseAddress(env.To)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient: %v", ErrInvalidEnvelope, err)
	}
	from, err := netmail.ParseAddress(env.FromEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrInvalidEnvelope, err)
	}
	from.Name = sanitizeHeaderValue(env.FromName)
	if len(env.Attached.Data) == 0 {
		return nil, fmt.Errorf("%w: attachment is empty", ErrInvalidEnvelope)
	}

	seed := opts.BoundarySeed
	if seed == "" {
		seed = opts.MessageID
	}

	var hdr Header
	hdr.Set("To", to.String())
	hdr.Set("From", from.String())
	if env.ReplyTo != "" {
		replyTo, err := netmail.ParseAddress(env.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("%w: reply-to: %v", ErrInvalidEnvelope, err)
		}
		hdr.Set("Reply-To", replyTo.String())
	}
	hdr.Set("Subject", mime.QEncoding.Encode("utf-8", sanitizeHeaderValue(env.Subject)))
	hdr.Set("Message-ID", opts.MessageID)
	hdr.Set("Date", opts.Date.Format(time.RFC1123Z))
	hdr.Set("MIME-Version", "1.0")

	alternative := &Part{
		Boundary: boundary(seed, "alternative"),
		Children: []*Part{
			textPart("text/plain", env.BodyText),
			textPart("text/html", htmlBody(env.BodyText)),
		},
	}
	alternative.Header.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alternative.Boundary))

	root := &Part{
		Boundary: boundary(seed, "mixed"),
		Children: []*Part{alternative, attachmentPart(env.Attached)},
	}
	root.Header.Set("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", root.Boundary))

	return &Message{Header: hdr, Root: root}, nil
}

func textPart(contentType, text string) *Part {
	var buf bytes.Buffer
	qp := quotedprintable.NewWriter(&buf)
	_, _ = qp.Write([]byte(normalizeNewlines(text)))
	_ = qp.Close()

	p := &Part{Body: buf.Bytes()}
	p.Header.Set("Content-Type", contentType+"; charset=UTF-8")
	p.Header.Set("Content-Transfer-Encoding", "quoted-printable")
	return p
}

func attachmentPart(a Attachment) *Part {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := strings.NewReplacer(`"`, "", `\`, "").Replace(sanitizeHeaderValue(a.Filename))

	p := &Part{Body: wrapBase64(a.Data)}
	if isASCII(filename) {
		p.Header.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, filename))
		p.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	} else {
		// RFC 2231 filename*, with an encoded-word name= for older clients.
		p.Header.Set("Content-Type", fmt.Sprintf("%s; name=%q", contentType, mime.QEncoding.Encode("utf-8", filename)))
		p.Header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	p.Header.Set("Content-Transfer-Encoding", "base64")
	return p
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// htmlBody escapes text and keeps its line breaks.
func htmlBody(text string) string {
	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return "<html><body><p>" + strings.Join(lines, "<br>") + "</p></body></html>"
}

func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var buf bytes.Buffer
	for len(encoded) > base64LineLen {
		buf.WriteString(encoded[:base64LineLen])
		buf.WriteString(crlf)
		encoded = encoded[base64LineLen:]
	}
	buf.WriteString(encoded)
	return buf.Bytes()
}

func boundary(seed, kind string) string {
	sum := sha256.Sum256([]byte(seed + "/" + kind))
	return kind + "_" + hex.EncodeToString(sum[:12])
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// sanitizeHeaderValue folds CR and LF into spaces so values cannot inject
// extra header lines.
func sanitizeHeaderValue(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}
