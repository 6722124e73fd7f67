package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// AssemblyPath returns where the assembly for srcPath is written: the source
// name with a .s extension, inside outDir or next to the source when outDir
// is empty.
func AssemblyPath(srcPath, outDir string) (string, error) {
	fullPath, parentDir, err := GetPathInfo(srcPath)
	if err != nil {
		return "", err
	}
	base := filepath.Base(fullPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".s"
	if outDir == "" {
		return filepath.Join(parentDir, name), nil
	}
	return filepath.Join(outDir, name), nil
}
