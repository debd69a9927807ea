package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 题目附件相关常量
const (
	MimeVideo       = "video/"
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
)
