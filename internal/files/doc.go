// Package files provides the file operations used by the pipeline stages.
//
// Manager resolves relative names against the work directory, so stages can
// pass bare file names such as "datapackage.json" and still honor a
// configured work_dir. Writes always replace existing content.
//
//	manager := files.NewManager(paths.WorkDir)
//	if err := manager.WriteFile("datapackage.json", data); err != nil {
//	    return err
//	}
package files
