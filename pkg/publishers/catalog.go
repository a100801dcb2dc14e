package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink types accepted in the publishers file.
const (
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeNATS      = "nats"
)

const (
	defaultWebhookMethod  = "POST"
	defaultWebhookTimeout = 5
	defaultMessageGroup   = "forum-posts"
)

// SinkConfig is one entry of the publishers file. Exactly the block matching
// Type is read.
type SinkConfig struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Webhook *WebhookConfig `json:"http" yaml:"http"`
	SQS     *SQSConfig     `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig     `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig  `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	NATS    *NATSConfig    `json:"nats" yaml:"nats"`
}

// IsEnabled reports the enabled flag; entries are enabled unless switched off.
func (c SinkConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// WebhookConfig posts events to an HTTP endpoint. A non-empty Secret signs
// every body with HMAC-SHA256.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Secret         string            `json:"secret" yaml:"secret"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSAccess optionally pins static credentials and a custom endpoint
// (LocalStack and friends). Without it the default credential chain is used.
type AWSAccess struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSConfig targets a queue. MessageGroupID is only sent to FIFO queues.
type SQSConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	MessageGroupID string `json:"message_group_id" yaml:"message_group_id"`
	AWSAccess      `yaml:",inline"`
}

// SNSConfig targets a topic. MessageGroupID is only sent to FIFO topics.
type SNSConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	MessageGroupID string `json:"message_group_id" yaml:"message_group_id"`
	AWSAccess      `yaml:",inline"`
}

// PubSubConfig targets a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// NATSConfig targets a NATS subject.
type NATSConfig struct {
	URL             string `json:"url" yaml:"url"`
	Subject         string `json:"subject" yaml:"subject"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// Catalog holds the validated sink entries of a publishers file. It is
// read-only after loading.
type Catalog struct {
	sinks []SinkConfig
	byID  map[string]int
}

// LoadCatalog reads a YAML or JSON publishers file.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return ParseCatalog(raw, filepath.Ext(path))
}

// ParseCatalog decodes and validates publishers file content. ext selects the
// format (".yaml", ".yml" or ".json"); an empty ext tries YAML then JSON.
func ParseCatalog(data []byte, ext string) (*Catalog, error) {
	var file struct {
		Publishers []SinkConfig `json:"publishers" yaml:"publishers"`
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	case "":
		if err = yaml.Unmarshal(data, &file); err != nil {
			err = json.Unmarshal(data, &file)
		}
	default:
		return nil, fmt.Errorf("publishers file format %q not recognized (expected YAML or JSON)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	cat := &Catalog{
		sinks: make([]SinkConfig, 0, len(file.Publishers)),
		byID:  make(map[string]int, len(file.Publishers)),
	}
	for i, sink := range file.Publishers {
		sink.normalize()
		if err := sink.check(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := cat.byID[sink.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", sink.ID)
		}
		cat.byID[sink.ID] = len(cat.sinks)
		cat.sinks = append(cat.sinks, sink)
	}
	return cat, nil
}

// Lookup returns the entry with id, enabled or not.
func (c *Catalog) Lookup(id string) (SinkConfig, bool) {
	if c == nil {
		return SinkConfig{}, false
	}
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return SinkConfig{}, false
	}
	return c.sinks[i], true
}

// Len is the number of entries, enabled or not.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sinks)
}

// Enabled returns the enabled entries in file order.
func (c *Catalog) Enabled() []SinkConfig {
	if c == nil {
		return nil
	}
	out := make([]SinkConfig, 0, len(c.sinks))
	for _, s := range c.sinks {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

func (c *SinkConfig) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))

	if w := c.Webhook; w != nil {
		w.URL = strings.TrimSpace(w.URL)
		w.Method = strings.ToUpper(strings.TrimSpace(w.Method))
		if w.Method == "" {
			w.Method = defaultWebhookMethod
		}
		if w.TimeoutSeconds <= 0 {
			w.TimeoutSeconds = defaultWebhookTimeout
		}
		w.Headers = trimHeaders(w.Headers)
	}
	if q := c.SQS; q != nil {
		q.QueueURL = strings.TrimSpace(q.QueueURL)
		q.Region = strings.TrimSpace(q.Region)
		q.MessageGroupID = strings.TrimSpace(q.MessageGroupID)
		q.AWSAccess.normalize()
	}
	if t := c.SNS; t != nil {
		t.TopicARN = strings.TrimSpace(t.TopicARN)
		t.Region = strings.TrimSpace(t.Region)
		t.MessageGroupID = strings.TrimSpace(t.MessageGroupID)
		t.AWSAccess.normalize()
	}
	if p := c.PubSub; p != nil {
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		p.Endpoint = strings.TrimSpace(p.Endpoint)
	}
	if n := c.NATS; n != nil {
		n.URL = strings.TrimSpace(n.URL)
		n.Subject = strings.TrimSpace(n.Subject)
		n.CredentialsFile = strings.TrimSpace(n.CredentialsFile)
	}
}

func (a *AWSAccess) normalize() {
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	a.SessionToken = strings.TrimSpace(a.SessionToken)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
}

// check reports the first missing field for the entry's type.
func (c SinkConfig) check() error {
	if c.ID == "" {
		return errors.New("id is required")
	}

	var missing string
	switch c.Type {
	case "":
		return fmt.Errorf("publisher %q: type is required", c.ID)
	case TypeHTTP:
		switch {
		case c.Webhook == nil:
			missing = "http"
		case c.Webhook.URL == "":
			missing = "http.url"
		}
	case TypeSQS:
		switch {
		case c.SQS == nil:
			missing = "sqs"
		case c.SQS.QueueURL == "":
			missing = "sqs.uri"
		case c.SQS.Region == "":
			missing = "sqs.region"
		default:
			return c.SQS.AWSAccess.check(c.ID, TypeSQS)
		}
	case TypeSNS:
		switch {
		case c.SNS == nil:
			missing = "sns"
		case c.SNS.TopicARN == "":
			missing = "sns.topic_arn"
		case c.SNS.Region == "":
			missing = "sns.region"
		default:
			return c.SNS.AWSAccess.check(c.ID, TypeSNS)
		}
	case TypeGCPPubSub:
		switch {
		case c.PubSub == nil:
			missing = "gcp_pubsub"
		case c.PubSub.ProjectID == "":
			missing = "gcp_pubsub.project_id"
		case c.PubSub.Topic == "":
			missing = "gcp_pubsub.topic"
		}
	case TypeNATS:
		switch {
		case c.NATS == nil:
			missing = "nats"
		case c.NATS.URL == "":
			missing = "nats.url"
		case c.NATS.Subject == "":
			missing = "nats.subject"
		}
	default:
		return fmt.Errorf("publisher %q: unsupported type %q", c.ID, c.Type)
	}

	if missing != "" {
		return fmt.Errorf("publisher %q: %s is required", c.ID, missing)
	}
	return nil
}

// check requires static keys to come as a pair.
func (a AWSAccess) check(id, block string) error {
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("publisher %q: %s.access_key_id and %s.secret_access_key must be set together", id, block, block)
	}
	return nil
}

func trimHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
