// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"printforge/internal/catalog"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	// Print files for large multi-part models get close to this.
	maxUploadSize = 50 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels. Larger
	// uploads are downscaled before storage.
	thumbMaxWidth = 800

	// thumbQuality is the JPEG quality for downscaled thumbnails.
	thumbQuality = 85

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedImageTypes defines MIME types accepted for thumbnails and
// gallery images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedFileExts defines extensions accepted for downloadable print
// files. Mesh formats sniff as application/octet-stream, so files are
// gated by extension rather than detected MIME type.
var allowedFileExts = map[string]string{
	".stl": "model/stl",
	".3mf": "model/3mf",
	".obj": "model/obj",
	".zip": "application/zip",
	".pdf": "application/pdf",
}

// readImageUpload reads a multipart image from the named form field,
// sniffing the content type and rejecting anything outside the image
// allow-list. It writes the error response itself and reports ok.
func readImageUpload(w http.ResponseWriter, r *http.Request, field string) (catalog.Upload, bool) {
	data, filename, contentType, ok := readMultipart(w, r, field)
	if !ok {
		return catalog.Upload{}, false
	}
	if !allowedImageTypes[contentType] {
		writeError(w, fmt.Sprintf("File type %q is not allowed for images.", contentType), http.StatusBadRequest)
		return catalog.Upload{}, false
	}
	return catalog.Upload{Filename: filename, ContentType: contentType, Data: data}, true
}

// readFileUpload reads a multipart print file from the named form field,
// gating by extension and taking the content type from the allow-list.
func readFileUpload(w http.ResponseWriter, r *http.Request, field string) (catalog.Upload, bool) {
	data, filename, contentType, ok := readMultipart(w, r, field)
	if !ok {
		return catalog.Upload{}, false
	}

	ext := strings.ToLower(filepath.Ext(filename))
	extType, allowed := allowedFileExts[ext]
	if !allowed {
		writeError(w, fmt.Sprintf("File extension %q is not allowed.", ext), http.StatusBadRequest)
		return catalog.Upload{}, false
	}
	// Sniffing only distinguishes zip and pdf; mesh formats come back as
	// octet-stream and take their type from the extension.
	if contentType == "application/octet-stream" || strings.HasPrefix(contentType, "text/") {
		contentType = extType
	}
	return catalog.Upload{Filename: filename, ContentType: contentType, Data: data}, true
}

// readMultipart does the shared multipart legwork: size limiting, form
// parsing, and content-type sniffing of the first 512 bytes.
func readMultipart(w http.ResponseWriter, r *http.Request, field string) (data []byte, filename, contentType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, "File too large. Maximum size is 50 MB.", http.StatusRequestEntityTooLarge)
		return nil, "", "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, "No file provided.", http.StatusBadRequest)
		return nil, "", "", false
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, "File too large. Maximum size is 50 MB.", http.StatusRequestEntityTooLarge)
		return nil, "", "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, "Failed to read file.", http.StatusInternalServerError)
		return nil, "", "", false
	}

	sniffLen := len(data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	contentType = http.DetectContentType(data[:sniffLen])
	return data, header.Filename, contentType, true
}

// downscaleThumb shrinks a thumbnail wider than thumbMaxWidth and
// re-encodes it as JPEG. Uploads that are small enough, or that fail to
// decode, are stored as-is.
func downscaleThumb(up catalog.Upload) catalog.Upload {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		slog.Warn("thumbnail decode config failed, storing original", "filename", up.Filename, "error", err)
		return up
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		slog.Warn("thumbnail too large to downscale, storing original",
			"filename", up.Filename, "width", cfg.Width, "height", cfg.Height)
		return up
	}
	if cfg.Width <= thumbMaxWidth {
		return up
	}

	img, _, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		slog.Warn("thumbnail decode failed, storing original", "filename", up.Filename, "error", err)
		return up
	}

	bounds := img.Bounds()
	ratio := float64(thumbMaxWidth) / float64(bounds.Dx())
	newHeight := int(float64(bounds.Dy()) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, thumbMaxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		slog.Warn("thumbnail encode failed, storing original", "filename", up.Filename, "error", err)
		return up
	}

	name := strings.TrimSuffix(up.Filename, filepath.Ext(up.Filename)) + ".jpg"
	return catalog.Upload{Filename: name, ContentType: "image/jpeg", Data: buf.Bytes()}
}
