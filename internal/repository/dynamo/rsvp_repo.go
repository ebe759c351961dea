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

type rsvpRepository struct {
	client DynamoAPI
	table  string
}

// NewRSVPRepository creates an RSVPRepository over the given table.
// Put overwrites on the (invitation_id, event_id) key, which is what makes
// re-responding an upsert.
func NewRSVPRepository(client DynamoAPI, table string) domain.RSVPRepository {
	return &rsvpRepository{client: client, table: table}
}

func rsvpKey(invitationID, eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"invitation_id": &types.AttributeValueMemberS{Value: invitationID},
		"event_id":      &types.AttributeValueMemberS{Value: eventID},
	}
}

func (r *rsvpRepository) Put(ctx context.Context, rsvp *domain.RSVP) error {
	item, err := attributevalue.MarshalMap(rsvp)
	if err != nil {
		return fmt.Errorf("marshal rsvp: %w", err)
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

func (r *rsvpRepository) Get(ctx context.Context, invitationID, eventID string) (*domain.RSVP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       rsvpKey(invitationID, eventID),
	})
	if err != nil {
		return nil, translateError(err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var rsvp domain.RSVP
	if err := attributevalue.UnmarshalMap(out.Item, &rsvp); err != nil {
		return nil, fmt.Errorf("unmarshal rsvp: %w", err)
	}
	return &rsvp, nil
}

func (r *rsvpRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.RSVP, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("event_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	rsvps := make([]*domain.RSVP, 0, len(out.Items))
	for _, item := range out.Items {
		var rsvp domain.RSVP
		if err := attributevalue.UnmarshalMap(item, &rsvp); err != nil {
			return nil, fmt.Errorf("unmarshal rsvp: %w", err)
		}
		rsvps = append(rsvps, &rsvp)
	}
	return rsvps, nil
}

func (r *rsvpRepository) Delete(ctx context.Context, invitationID, eventID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       rsvpKey(invitationID, eventID),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}
