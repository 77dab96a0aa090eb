package httpserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"whisperlink/internal/config"
)

const maxUploadBytes = 50 << 20

// UploadRoutes returns a sub-router mounted at /api/uploads. Files land
// in per-category subdirectories (profiles, wallpapers, files, voice)
// and are served back under the same path.
func UploadRoutes(cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	allowed := make(map[string]struct{}, len(config.UploadSubdirs))
	for _, sub := range config.UploadSubdirs {
		allowed[sub] = struct{}{}
	}

	r.Post("/{category}", func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		if _, ok := allowed[category]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "unknown upload category"})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "failed to parse multipart form"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file"})
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		filename := uuid.NewString() + ext
		destPath := filepath.Join(cfg.UploadDir, category, filename)

		out, err := os.Create(destPath)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "could not create file"})
			return
		}
		defer out.Close()

		size, err := io.Copy(out, file)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "could not save file"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"file_url":  "/api/uploads/" + category + "/" + filename,
			"file_name": header.Filename,
			"file_size": size,
		})
	})

	r.Get("/{category}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		filename := chi.URLParam(r, "filename")
		if _, ok := allowed[category]; !ok {
			http.Error(w, "unknown upload category", http.StatusBadRequest)
			return
		}
		// Reject anything that could climb out of the upload dir.
		if filename == "" || filepath.Base(filename) != filename {
			http.Error(w, "invalid filename", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, category, filename))
	})

	return r
}
