package invoices

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/netbill/isp-billing/pkg/types"
)

var receiptTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/heic",
	"application/pdf",
}

// Receipt is an uploaded proof of payment.
type Receipt struct {
	Filename string
	Content  io.Reader
}

type sniffedReceipt struct {
	data      []byte
	extension string
	mime      string
}

// sniffReceipt reads the upload and accepts only raster images and PDF
// documents. The stored extension always follows the detected type; the
// client filename is ignored.
func sniffReceipt(r *Receipt) (*sniffedReceipt, error) {
	if r.Content == nil {
		return nil, fmt.Errorf("receipt content is empty")
	}
	data, err := io.ReadAll(r.Content)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("receipt content is empty")
	}
	mt := mimetype.Detect(data)
	if !allowedReceiptType(mt) {
		return nil, fmt.Errorf("unsupported receipt type %s", mt.String())
	}
	return &sniffedReceipt{data: data, extension: mt.Extension(), mime: mt.String()}, nil
}

func allowedReceiptType(mt *mimetype.MIME) bool {
	for _, t := range receiptTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

func (s *sniffedReceipt) reader() io.Reader {
	return bytes.NewReader(s.data)
}

// receiptPath places a receipt under YYYY_MM/ named after the customer with
// spaces replaced by underscores and a 16 hex character random suffix.
func receiptPath(p types.Period, customerName, ext string) string {
	var buf [8]byte
	// crypto/rand.Read never fails on supported platforms since Go 1.24
	_, _ = rand.Read(buf[:])
	suffix := hex.EncodeToString(buf[:])
	return fmt.Sprintf("%04d_%02d/%s_%s%s", p.Year, p.Month, safeName(customerName), suffix, ext)
}

func safeName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(" ", "_", "/", "_", `\`, "_")
	return replacer.Replace(name)
}
