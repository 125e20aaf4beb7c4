package config

type UploadRules struct {
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxSizeMB         int64
	PathPrefix        string
}

var UploadContexts = map[string]UploadRules{
	"subsidiary_attachment": {
		AllowedExtensions: []string{".jpeg", ".jpg", ".png", ".pdf", ".doc", ".docx", ".xls", ".xlsx"},
		AllowedMimeTypes: []string{
			"image/jpeg", "image/png", "application/pdf",
			"application/msword",
			"application/vnd.ms-excel",
			"application/x-ole-storage",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/zip",
		},
		MaxSizeMB:  10,
		PathPrefix: "subsidiaries",
	},
}
