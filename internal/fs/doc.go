// Package fs abstracts the filesystem calls made by blobstore.LocalStore so
// tests can inject write, sync, close and rename failures.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails on configured rules
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
//
// Tests inject a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".put-", fs.Fault{FailOnSync: true})
//
// Filesystem calls take no context. Reads go through internal/mmap.
package fs
