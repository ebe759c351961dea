package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"clubcalendar/internal/domain"
)

type eventRepository struct {
	client DynamoAPI
	table  string
}

// NewEventRepository creates an EventRepository over the given events table.
func NewEventRepository(client DynamoAPI, table string) domain.EventRepository {
	return &eventRepository{client: client, table: table}
}

func eventKey(id int64, createdAt string) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(struct {
		ID        int64  `dynamodbav:"id"`
		CreatedAt string `dynamodbav:"created_at"`
	}{ID: id, CreatedAt: createdAt})
}

func (r *eventRepository) Put(ctx context.Context, event *domain.Event) error {
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id int64, createdAt string) (*domain.Event, error) {
	key, err := eventKey(id, createdAt)
	if err != nil {
		return nil, fmt.Errorf("marshal event key: %w", err)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var event domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

// FindByID scans for the event when the caller doesn't know created_at.
// The events table is small enough that the scan is acceptable.
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", id)},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrNotFound
	}
	var event domain.Event
	if err := attributevalue.UnmarshalMap(out.Items[0], &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return unmarshalEvents(out.Items)
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("organizer_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: organizerID},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	return unmarshalEvents(out.Items)
}

func (r *eventRepository) Delete(ctx context.Context, id int64, createdAt string) error {
	key, err := eventKey(id, createdAt)
	if err != nil {
		return fmt.Errorf("marshal event key: %w", err)
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       key,
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

func unmarshalEvents(items []map[string]types.AttributeValue) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0, len(items))
	for _, item := range items {
		var event domain.Event
		if err := attributevalue.UnmarshalMap(item, &event); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, &event)
	}
	return events, nil
}
