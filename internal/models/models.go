package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Folder{},
		&File{},
		&UploadSession{},
		&UploadChunk{},
		&FileVersion{},
		&ShareLink{},
		&ShareAccessLog{},
		&Comment{},
	}
}
