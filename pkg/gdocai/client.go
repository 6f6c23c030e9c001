package gdocai

import (
	"context"
	"errors"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// Config identifies the Document AI processor to use.
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`

	// CredentialsFile defaults to GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string `yaml:"credentials_file"`
}

// Validate reports missing processor settings.
func (c Config) Validate() error {
	var errs []error
	if c.ProjectID == "" {
		errs = append(errs, errors.New("project_id is required"))
	}
	if c.Location == "" {
		errs = append(errs, errors.New("location is required"))
	}
	if c.ProcessorID == "" {
		errs = append(errs, errors.New("processor_id is required"))
	}
	return errors.Join(errs...)
}

// ProcessorName returns the resource name of the processor.
func (c Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// Endpoint returns the regional API endpoint of the processor.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// Process sends a document to Document AI and returns the raw Document
// response. mimeType is the type of content, e.g. application/pdf or
// image/png.
func Process(ctx context.Context, content []byte, mimeType string, cfg Config) (*documentaipb.Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Document AI config: %w", err)
	}

	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	req := &documentaipb.ProcessRequest{
		Name: cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.GetDocument(), nil
}
