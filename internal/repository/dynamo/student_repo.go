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

type studentRepository struct {
	client DynamoAPI
	table  string
}

// NewStudentRepository creates a read-only StudentRepository over the roster
// table. The roster is maintained by a separate import job.
func NewStudentRepository(client DynamoAPI, table string) domain.StudentRepository {
	return &studentRepository{client: client, table: table}
}

func (r *studentRepository) List(ctx context.Context) ([]*domain.Student, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, translateError(err)
	}
	students := make([]*domain.Student, 0, len(out.Items))
	for _, item := range out.Items {
		var student domain.Student
		if err := attributevalue.UnmarshalMap(item, &student); err != nil {
			return nil, fmt.Errorf("unmarshal student: %w", err)
		}
		students = append(students, &student)
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var student domain.Student
	if err := attributevalue.UnmarshalMap(out.Item, &student); err != nil {
		return nil, fmt.Errorf("unmarshal student: %w", err)
	}
	return &student, nil
}
