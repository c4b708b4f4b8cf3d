package pages

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Count returns the number of printable pages in the stored file. PDFs are
// introspected; any format we cannot introspect (images, plain text) counts
// as one page by policy. A corrupt PDF also falls back to one page rather
// than failing the upload.
func Count(path, contentType, originalName string) (n int) {
	if !isPDF(contentType, originalName) {
		return 1
	}

	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pages: reader panic on %s, counting 1 page: %v", originalName, r)
			n = 1
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		log.Printf("pages: failed to read %s as pdf, counting 1 page: %v", originalName, err)
		return 1
	}
	defer f.Close()

	n = reader.NumPage()
	if n < 1 {
		return 1
	}
	return n
}

func isPDF(contentType, originalName string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(originalName), ".pdf")
}
