package formstate

// File 本地选择的文件 (尚未上传)
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Preview 本地生成的预览地址，形如 preview://<uuid>
// 由 PreviewRegistry 发放，必须在图片移除、替换或表单关闭时释放
type Preview string

// Image 变体图库中的一张图
// 只有 PersistedImage 与 PendingImage 两种实现
type Image interface {
	// DisplayURL 渲染用地址
	DisplayURL() string
	isImage()
}

// PersistedImage 已保存在服务端的图片
type PersistedImage struct {
	PublicID string
	URL      string
}

func (p PersistedImage) DisplayURL() string { return p.URL }
func (PersistedImage) isImage()             {}

// PendingImage 本地新选的图片，提交时作为文件附件上传
type PendingImage struct {
	File    File
	Preview Preview
}

func (p PendingImage) DisplayURL() string { return string(p.Preview) }
func (PendingImage) isImage()             {}
