package devserver

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

type uploadedDoc struct {
	Name string
	Size int64
	// Text is only set for PDF parts we could extract text from.
	Text string
}

// readPart pulls one named multipart file if present. The second return is
// false when the part is absent; an error means the part was too large.
func (s *Server) readPart(r *http.Request, name string) (uploadedDoc, bool, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return uploadedDoc{}, false, nil
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		return uploadedDoc{}, false, fmt.Errorf("%s exceeds %d bytes", name, s.maxUploadBytes)
	}

	doc := uploadedDoc{Name: header.Filename, Size: header.Size}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes))
	if err != nil {
		return doc, true, nil
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		doc.Text = pdfText(data)
	}
	s.logger.Debug("received part", "name", name, "file", header.Filename, "size", header.Size)
	return doc, true, nil
}

// pdfText extracts a short plain-text excerpt from a PDF. Scanned PDFs with
// no text layer come back empty, which is fine for a stub.
func pdfText(data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	text, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, io.LimitReader(text, 512)); err != nil {
		return ""
	}
	return strings.TrimSpace(sb.String())
}
