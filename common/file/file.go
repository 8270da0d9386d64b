package file

import (
	"os"
	"path/filepath"
)

// WriteFileWithSync replaces name with data. The bytes go to a temporary file
// in the same directory, are synced, and the temporary file is renamed over
// name, so readers see either the old or the new content.
func WriteFileWithSync(name string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err = os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
