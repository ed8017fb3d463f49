// internal/app/features/download/handler.go
package download

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Installer describes the Android package offered on the landing page.
type Installer struct {
	Path      string // file on disk; blank means no installer is published
	FileName  string // name offered to the browser
	Version   string
	SizeLabel string // shown next to the button; derived from the file when blank
}

type Handler struct {
	Installer Installer
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(inst Installer, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if inst.FileName == "" {
		inst.FileName = "HakbangQuest.apk"
	}
	return &Handler{Installer: inst, ErrLog: errLog, Log: logger}
}

// stat returns the installer's file info, or fs.ErrNotExist when none is
// published.
func (h *Handler) stat() (os.FileInfo, error) {
	if h.Installer.Path == "" {
		return nil, fs.ErrNotExist
	}
	fi, err := os.Stat(h.Installer.Path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fs.ErrNotExist
	}
	return fi, nil
}

// ServeInstaller handles GET /download and streams the APK as an attachment.
func (h *Handler) ServeInstaller(w http.ResponseWriter, r *http.Request) {
	fi, err := h.stat()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.Log.Warn("installer stat failed", zap.String("path", h.Installer.Path), zap.Error(err))
		}
		h.ErrLog.LogNotFound(w, r, "installer not available", "The installer is not available right now.")
		return
	}

	f, err := os.Open(h.Installer.Path)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "open installer failed", err, "The installer could not be read.")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.Installer.FileName))
	if r.Method == http.MethodGet {
		metrics.InstallerDownloaded()
	}
	http.ServeContent(w, r, h.Installer.FileName, fi.ModTime(), f)
}

type appInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	SizeLabel   string `json:"size_label,omitempty"`
	Available   bool   `json:"available"`
	DownloadURL string `json:"download_url,omitempty"`
}

// ServeAppInfo handles GET /api/app-info.
func (h *Handler) ServeAppInfo(w http.ResponseWriter, r *http.Request) {
	info := appInfo{
		Name:      "HakbangQuest",
		Version:   h.Installer.Version,
		SizeLabel: h.Installer.SizeLabel,
	}
	if fi, err := h.stat(); err == nil {
		info.Available = true
		info.DownloadURL = "/download"
		if info.SizeLabel == "" {
			info.SizeLabel = SizeLabel(fi.Size())
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, info)
}

// SizeLabel renders a byte count the way the landing page shows it, e.g.
// "~163MB".
func SizeLabel(n int64) string {
	const mb = 1 << 20
	if n < mb {
		return fmt.Sprintf("~%dKB", (n+1023)/1024)
	}
	return fmt.Sprintf("~%dMB", (n+mb/2)/mb)
}
