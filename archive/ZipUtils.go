package archive

import (
	"archive/zip"
	"bytes"
	"io"
)

func ReadZipFile(zf *zip.File) ([]byte, error) {
	f, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func AddFileToZip(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = fw.Write(content)
	return err
}

// BuildZip writes the files in the given order into a new archive.
func BuildZip(names []string, files map[string][]byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, name := range names {
		if err := AddFileToZip(zw, name, files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadZip returns the content of every regular file of the archive keyed by name.
func ReadZip(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		content, err := ReadZipFile(zf)
		if err != nil {
			return nil, err
		}
		result[zf.Name] = content
	}
	return result, nil
}
