package email

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/orghub-io/orghub/internal/util"
)

// Message is a plain+html email. Both bodies are written as a
// multipart/alternative with quoted-printable encoding.
type Message struct {
	From         string
	To           []string
	Subject      string
	PlainMessage string
	HtmlMessage  string
	// Rand drives the multipart boundary. Leave nil outside of tests.
	Rand *rand.Rand
}

func (e *Message) Write(w io.Writer) (err error) {
	_, err = fmt.Fprintf(w,
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n",
		e.From, strings.Join(e.To, ", "), e.Subject)
	if err != nil {
		return err
	}

	alternatives := multipart.NewWriter(w)
	if e.Rand != nil {
		// a deterministic boundary keeps test fixtures stable
		boundary := fmt.Sprintf("%030x", e.Rand.Int63())
		if err := alternatives.SetBoundary(boundary); err != nil {
			return err
		}
	}
	defer util.IgnoreError(alternatives.Close)

	_, err = fmt.Fprintf(w, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", alternatives.Boundary())
	if err != nil {
		return err
	}

	if e.PlainMessage != "" {
		if err := addQuotedPrintablePart(alternatives, "text/plain", e.PlainMessage); err != nil {
			return err
		}
	}
	if e.HtmlMessage != "" {
		if err := addQuotedPrintablePart(alternatives, "text/html", e.HtmlMessage); err != nil {
			return err
		}
	}
	return alternatives.Close()
}

func addQuotedPrintablePart(w *multipart.Writer, contentType string, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=utf-8")
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	encoder := quotedprintable.NewWriter(part)
	if _, err := encoder.Write([]byte(body)); err != nil {
		return err
	}
	return encoder.Close()
}
