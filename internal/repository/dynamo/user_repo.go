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

type userRepository struct {
	client DynamoAPI
	table  string
}

// NewUserRepository creates a UserRepository over the given users table.
func NewUserRepository(client DynamoAPI, table string) domain.UserRepository {
	return &userRepository{client: client, table: table}
}

func (r *userRepository) Put(ctx context.Context, user *domain.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
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

// GetByEmail scans on email. The table key is (email, id) and the id is not
// known to callers, so GetItem is not an option here.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, translateError(err)
	}
	users := make([]*domain.User, 0, len(out.Items))
	for _, item := range out.Items {
		var user domain.User
		if err := attributevalue.UnmarshalMap(item, &user); err != nil {
			return nil, fmt.Errorf("unmarshal user: %w", err)
		}
		users = append(users, &user)
	}
	return users, nil
}
