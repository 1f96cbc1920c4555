package utils

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
)

var audioMIME = map[string]string{".wav": "audio/wav", ".mp3": "audio/mpeg", ".mp4": "audio/mp4",
	".m4a": "audio/mp4", ".ogg": "audio/ogg", ".oga": "audio/ogg", ".opus": "audio/ogg", ".webm": "audio/webm",
	".aac": "audio/aac", ".amr": "audio/amr", ".flac": "audio/flac", ".3gp": "audio/3gpp", ".wma": "audio/x-ms-wma"}

var nameCleaner = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

//SupportAudioExt checks if audio ext is known
func SupportAudioExt(ext string) bool {
	_, ok := audioMIME[strings.ToLower(ext)]
	return ok
}

// AudioMIME returns mime type by file extension, defaults to audio/mpeg
func AudioMIME(fileName string) string {
	if res, ok := audioMIME[strings.ToLower(filepath.Ext(fileName))]; ok {
		return res
	}
	return "audio/mpeg"
}

// ExtByMIME returns file extension for a mime type
func ExtByMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, k := range []string{".ogg", ".mp3", ".m4a", ".wav", ".webm", ".aac", ".amr", ".flac"} {
		if audioMIME[k] == mimeType {
			return k
		}
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// CleanName makes a safe object name part
func CleanName(s string) string {
	s = strings.TrimSpace(s)
	s = nameCleaner.ReplaceAllString(s, "_")
	return strings.Trim(s, "_.")
}

// ChangeExt replaces file extension
func ChangeExt(fileName, ext string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ext
}
