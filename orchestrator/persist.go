package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

func newSessionID(now time.Time) string {
	return "session_" + now.Format("20060102-150405") + "_" + uuid.NewString()[:8]
}

func mkSessionDir(outputsRoot, sid string) (string, error) {
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// persist writes report.json and topics.md under <outputsRoot>/<session id>.
func persist(outputsRoot string, r *Report) (string, error) {
	outDir, err := mkSessionDir(outputsRoot, r.SessionID)
	if err != nil {
		return "", err
	}
	r.OutputDir = outDir

	if err = writeJSON(filepath.Join(outDir, "report.json"), r); err != nil {
		return "", err
	}
	if err = os.WriteFile(filepath.Join(outDir, "topics.md"), []byte(r.Markdown()), 0o644); err != nil {
		return "", err
	}
	return outDir, nil
}
