// Package pdf inspects rendered boarding passes: structural validation and
// page count through pdfcpu, plain text through dslipak/pdf, and embedded
// images through pdfcpu's extractor.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspect validates data and extracts the text of the pages selected by
// pageRange ("" for all pages). name is only used for reporting.
func Inspect(name string, data []byte, pageRange string) (*Inspection, error) {
	start := time.Now()
	pages, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	res := &Inspection{
		Filename:  name,
		SizeBytes: int64(len(data)),
		Version:   headerVersion(data),
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		if isEncryptionError(err) {
			res.Encrypted = true
		}
		res.ValidationError = err.Error()
	} else {
		res.Valid = true
	}

	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		if isEncryptionError(err) {
			res.Encrypted = true
			res.Processing.TotalTimeMs = time.Since(start).Milliseconds()
			return res, nil
		}
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	res.TotalPages = count

	textStart := time.Now()
	texts, err := NewTextExtractor().ExtractText(data, pages)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= count; i++ {
		if t, ok := texts[i]; ok {
			res.Pages = append(res.Pages, PageResult{PageNumber: i, Text: t.Text, WordCount: t.WordCount})
		}
	}
	res.Processing.TextTimeMs = time.Since(textStart).Milliseconds()
	res.Processing.TotalTimeMs = time.Since(start).Milliseconds()
	return res, nil
}

// InspectFile runs Inspect on a file and adds per-page image counts.
func InspectFile(filename, pageRange string) (*Inspection, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // G304: inspecting a user-provided PDF path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %q: %w", filename, err)
	}
	res, err := Inspect(filepath.Base(filename), data, pageRange)
	if err != nil {
		return nil, err
	}
	if res.Encrypted {
		return res, nil
	}

	start := time.Now()
	images, err := ExtractImages(filename, pageRange)
	if err != nil {
		return nil, err
	}
	for i := range res.Pages {
		res.Pages[i].Images = len(images[res.Pages[i].PageNumber])
	}
	res.Processing.ImageTimeMs = time.Since(start).Milliseconds()
	res.Processing.TotalTimeMs += res.Processing.ImageTimeMs
	return res, nil
}

// ExtractImages extracts all images from a PDF file using pdfcpu's extract functionality.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "boardpass-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	result, err := collectExtractedImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	return result, nil
}

// isEncryptionError matches pdfcpu's wording for password-protected input.
func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}

// headerVersion reads "1.4" from a "%PDF-1.4" header.
func headerVersion(data []byte) string {
	const prefix = "%PDF-"
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return ""
	}
	rest := data[len(prefix):]
	end := bytes.IndexAny(rest, "\r\n \t%")
	if end < 0 {
		end = min(len(rest), 8)
	}
	return string(rest[:end])
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: reading files from our own temp directory
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// collectExtractedImages walks the given directory and groups images by page number.
func collectExtractedImages(dir string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(info.Name())
		if err != nil {
			return nil
		}

		img, err := loadImageFile(path)
		if err != nil {
			return nil
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parsePageFromFilename reads the page number from pdfcpu's
// "<base>_<page>_<resource>.<ext>" naming, counting from the right so the
// base name may itself contain underscores.
func parsePageFromFilename(filename string) (int, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return 0, errors.New("invalid filename format")
	}

	pageNum, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || pageNum < 1 {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}
