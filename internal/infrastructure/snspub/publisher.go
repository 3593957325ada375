// Package snspub delivers digests through an SNS topic using the
// multi-protocol JSON envelope, so email subscribers get readable text
// while other protocols receive the default rendering.
package snspub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
	"github.com/frodopackets/DeathStrandsing/internal/retry"
)

const (
	messageTypeSummary = "NewsSummary"
	messageTypeNoNews  = "NoNewsNotification"
)

// SnsAPI is the slice of the SNS client the publisher needs.
type SnsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher implements ports.Publisher on an SNS topic.
type Publisher struct {
	api           SnsAPI
	topicARN      string
	subjectPrefix string
	policy        retry.Policy
	logger        *slog.Logger
	now           func() time.Time
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher wraps an already configured SNS client.
func NewPublisher(api SnsAPI, cfg config.PublishConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		api:           api,
		topicARN:      cfg.TopicARN,
		subjectPrefix: cfg.SubjectPrefix,
		policy:        retry.Default(),
		logger:        logger,
		now:           time.Now,
	}
}

// PublishSummary sends the digest to all topic subscribers.
func (p *Publisher) PublishSummary(ctx context.Context, topic string, s domain.Summary) (domain.DeliveryReceipt, error) {
	return p.publish(ctx,
		subjectFor(p.subjectPrefix, s.GeneratedAt),
		renderPlainText(p.subjectPrefix, topic, s),
		renderEmail(p.subjectPrefix, topic, s),
		messageAttributes(messageTypeSummary, s.ArticleCount, s.GeneratedAt),
	)
}

// PublishNoNews tells subscribers the window was empty.
func (p *Publisher) PublishNoNews(ctx context.Context, n domain.NoNewsNotice) (domain.DeliveryReceipt, error) {
	return p.publish(ctx,
		noNewsSubject(p.subjectPrefix),
		renderNoNewsPlain(p.subjectPrefix, n),
		renderNoNewsEmail(p.subjectPrefix, n),
		messageAttributes(messageTypeNoNews, 0, n.GeneratedAt),
	)
}

func (p *Publisher) publish(ctx context.Context, subject, plain, email string, attrs map[string]types.MessageAttributeValue) (domain.DeliveryReceipt, error) {
	envelope, err := json.Marshal(map[string]string{
		"default": plain,
		"email":   email,
	})
	if err != nil {
		return domain.DeliveryReceipt{}, fmt.Errorf("marshal sns envelope: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Subject:           aws.String(subject),
		Message:           aws.String(string(envelope)),
		MessageStructure:  aws.String("json"),
		MessageAttributes: attrs,
	}

	var out *sns.PublishOutput
	err = p.policy.Do(ctx, p.logger, "publish to sns", func(ctx context.Context) error {
		result, err := p.api.Publish(ctx, input)
		if err != nil {
			return classifyPublishError(err)
		}
		out = result
		return nil
	})
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}

	return domain.DeliveryReceipt{
		Accepted:    true,
		MessageID:   aws.ToString(out.MessageId),
		PublishedAt: p.now().UTC(),
	}, nil
}

func messageAttributes(messageType string, articleCount int, generatedAt time.Time) map[string]types.MessageAttributeValue {
	return map[string]types.MessageAttributeValue{
		"MessageType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(messageType),
		},
		"ArticleCount": {
			DataType:    aws.String("Number"),
			StringValue: aws.String(strconv.Itoa(articleCount)),
		},
		"GeneratedAt": {
			DataType:    aws.String("String"),
			StringValue: aws.String(generatedAt.Format(time.RFC3339)),
		},
	}
}

// transientPublishCodes covers both the modeled exception names and the
// bare wire codes SNS uses for them.
var transientPublishCodes = map[string]bool{
	"Throttled":                   true,
	"ThrottledException":          true,
	"InternalError":               true,
	"InternalErrorException":      true,
	"ServiceUnavailable":          true,
	"ServiceUnavailableException": true,
}

func classifyPublishError(err error) error {
	wrapped := fmt.Errorf("%w: %w", domain.ErrPublishUnavailable, err)

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		// No modeled error means the request never got a response.
		return domain.Transient(wrapped)
	}
	if transientPublishCodes[apiErr.ErrorCode()] {
		return domain.Transient(wrapped)
	}
	return wrapped
}
