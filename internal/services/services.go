package services

import "doc-bridge/internal/doc_translator"

// Services holds all application services
type Services struct {
	DocTranslatorService *doc_translator.DocTranslatorService
	DocumentService      *doc_translator.DocumentService
}

// NewServices creates and initializes all services
func NewServices(translatorService *doc_translator.DocTranslatorService, documentService *doc_translator.DocumentService) *Services {
	return &Services{
		DocTranslatorService: translatorService,
		DocumentService:      documentService,
	}
}
