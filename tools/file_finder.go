package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/svosdf/internal/converter"
)

type FileFinder interface {
	GetFilesToProcess(opts *converter.ConverterOptions, extension string) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

// GetFilesToProcess returns the files the command should process. If folder processing is not enabled
// the file is given by the input option, otherwise files with the given extension are looked up in the
// input folder, eventually excluding nested folders if Recursive is disabled
func (f *StandardFileFinder) GetFilesToProcess(opts *converter.ConverterOptions, extension string) ([]string, error) {
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getFilesFromInputFolder(opts, extension)
}

func (f *StandardFileFinder) getFilesFromInputFolder(opts *converter.ConverterOptions, extension string) ([]string, error) {
	var files = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !opts.Recursive && !os.SameFile(info, baseInfo) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.ToLower(filepath.Ext(info.Name())) == extension {
				files = append(files, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
