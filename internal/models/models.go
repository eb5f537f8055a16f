package models

import "time"

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeText = "text/plain"
)

type Corpus struct {
	CorpusID   string    `json:"corpusId"`
	CorpusName string    `json:"corpusName"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UploadedFile struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadPath string    `json:"uploadPath"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
	CorpusID   string    `json:"corpusId"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum,omitempty"`
	Pages      int       `json:"pages,omitempty"`
}

// SizeMB reports the size in mebibytes, as shown in prompt listings.
func (f UploadedFile) SizeMB() float64 {
	return float64(f.Size) / (1 << 20)
}

type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}
