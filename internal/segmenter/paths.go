package segmenter

import (
	"fmt"
	"path/filepath"
	"strings"

	"speechline/internal/language"
)

// OutDirPath maps `{input}/{lang}/{stem}.ext` to `{outdir}/{lang}`.
func OutDirPath(audioPath, outDir string) string {
	return filepath.Join(outDir, language.FromPath(audioPath))
}

// ChunkPath returns `{outdir}/{lang}/{stem}-{index}.{ext}`.
func ChunkPath(audioPath, outDir string, index int, ext string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(OutDirPath(audioPath, outDir), fmt.Sprintf("%s-%d.%s", stem, index, ext))
}
