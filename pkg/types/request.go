package types

// TranslateRequest carries the form fields of a document translation upload.
// The file itself travels as the multipart part "file".
type TranslateRequest struct {
	FromLanguage string `form:"fromLanguage" json:"fromLanguage"`
	ToLanguage   string `form:"toLanguage" json:"toLanguage" binding:"required"`
	Owner        string `form:"owner" json:"owner" binding:"required"`
}

// TextTranslateRequest translates inline text instead of an upload.
type TextTranslateRequest struct {
	Text         string `json:"text" binding:"required"`
	FromLanguage string `json:"fromLanguage"`
	ToLanguage   string `json:"toLanguage" binding:"required"`
}

// DeleteDocumentsRequest lists documents to remove.
type DeleteDocumentsRequest struct {
	Owner string  `json:"owner" binding:"required"`
	IDs   []int64 `json:"ids" binding:"required,min=1"`
}

// TranslatedFile is the summary returned for each stored document.
type TranslatedFile struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	FromLanguage string `json:"fromLanguage"`
	ToLanguage   string `json:"toLanguage"`
}
