package main

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/httputil"
	"bookshelf-ai/internal/queue"
)

var allowedContentTypes = map[string]bool{
	"text/plain":      true,
	"application/pdf": true,
}

// uploadContentHandler saves the extracted text and queues a parse task
// that references it by book id.
func uploadContentHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		log := deps.Log.With("book_id", id)

		if r.ContentLength > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+1<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		contentType, ok := detectContentType(header.Header.Get("Content-Type"), header.Filename)
		if !ok {
			httputil.Fail(log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		if _, err := deps.Store.GetBook(ctx, id); err != nil {
			failLookup(deps, w, err)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text := extractText(deps, contentType, header.Filename, content)
		if strings.TrimSpace(text) == "" {
			httputil.Fail(log, w, "file contains no text", nil, http.StatusBadRequest)
			return
		}

		if err := deps.Store.SaveContent(ctx, id, text); err != nil {
			failLookup(deps, w, err)
			return
		}

		task, err := queue.NewTask(queue.TaskTypeParse, queue.ParsePayload{BookID: id})
		if err != nil {
			httputil.Fail(log, w, "failed to build task", err, http.StatusInternalServerError)
			return
		}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			httputil.Fail(log, w, "failed to enqueue content; please retry", err, http.StatusInternalServerError)
			return
		}

		log.Info("content accepted", "task_id", task.ID, "filename", header.Filename, "bytes", len(content))
		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"book_id": id,
			"task_id": task.ID.String(),
			"status":  "processing",
		})
	}
}

// detectContentType trusts the part's Content-Type when it is one we accept
// and otherwise falls back to the file extension.
func detectContentType(header, filename string) (string, bool) {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && allowedContentTypes[mediaType] {
		return mediaType, true
	}
	if header != "" && header != "application/octet-stream" {
		return "", false
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain", true
	case ".pdf":
		return "application/pdf", true
	default:
		return "", false
	}
}

// extractText extracts text from uploaded files, with PDF support.
func extractText(deps app.Deps, contentType, filename string, content []byte) string {
	if contentType == "application/pdf" {
		text, err := extractPDF(content)
		if err != nil {
			deps.Log.Warn("pdf extraction failed, using raw bytes", "err", err, "filename", filename)
			return string(content)
		}
		return text
	}
	return string(content)
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
