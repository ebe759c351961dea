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

type invitationRepository struct {
	client DynamoAPI
	table  string
}

// NewInvitationRepository creates an InvitationRepository over the given table.
func NewInvitationRepository(client DynamoAPI, table string) domain.InvitationRepository {
	return &invitationRepository{client: client, table: table}
}

func invitationKey(id, eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: id},
		"event_id": &types.AttributeValueMemberS{Value: eventID},
	}
}

func (r *invitationRepository) Put(ctx context.Context, inv *domain.Invitation) error {
	item, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("marshal invitation: %w", err)
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

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitation, error) {
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
	return unmarshalInvitations(out.Items)
}

func (r *invitationRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("invitee_email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	return unmarshalInvitations(out.Items)
}

func (r *invitationRepository) Delete(ctx context.Context, id, eventID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       invitationKey(id, eventID),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

func unmarshalInvitations(items []map[string]types.AttributeValue) ([]*domain.Invitation, error) {
	invs := make([]*domain.Invitation, 0, len(items))
	for _, item := range items {
		var inv domain.Invitation
		if err := attributevalue.UnmarshalMap(item, &inv); err != nil {
			return nil, fmt.Errorf("unmarshal invitation: %w", err)
		}
		invs = append(invs, &inv)
	}
	return invs, nil
}
