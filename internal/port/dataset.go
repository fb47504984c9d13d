package port

import "context"

// DatasetHub abstracts the remote dataset store (e.g. the Hugging Face
// hub). Versioning policy on the remote side is the hub's concern, not
// ours: we only upload named files into a target folder.
type DatasetHub interface {
	// Upload pushes one local file to the given path inside the dataset
	// repository, creating or overwriting it.
	Upload(ctx context.Context, localPath, repoPath string) error
}
