package dataapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// rdsDataAPI is the subset of the RDS Data API client used here.
type rdsDataAPI interface {
	ExecuteStatement(ctx context.Context, params *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
	BeginTransaction(ctx context.Context, params *rdsdata.BeginTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.BeginTransactionOutput, error)
	CommitTransaction(ctx context.Context, params *rdsdata.CommitTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.CommitTransactionOutput, error)
	RollbackTransaction(ctx context.Context, params *rdsdata.RollbackTransactionInput, optFns ...func(*rdsdata.Options)) (*rdsdata.RollbackTransactionOutput, error)
}

// RDSDataClient talks to an Aurora cluster through the AWS RDS Data API.
type RDSDataClient struct {
	api rdsDataAPI
}

var _ Client = (*RDSDataClient)(nil)

func NewRDSDataClient(cfg aws.Config) *RDSDataClient {
	return &RDSDataClient{api: rdsdata.NewFromConfig(cfg)}
}

func (c *RDSDataClient) ExecuteStatement(ctx context.Context, req Request) (*StatementResult, error) {
	params, err := toSQLParameters(req.Parameters)
	if err != nil {
		return nil, err
	}
	input := &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(req.ResourceARN),
		SecretArn:   aws.String(req.SecretARN),
		Database:    aws.String(req.Database),
		Sql:         aws.String(req.SQL),
		Parameters:  params,
	}
	if req.TransactionID != "" {
		input.TransactionId = aws.String(req.TransactionID)
	}

	out, err := c.api.ExecuteStatement(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &StatementResult{
		Records:                make([]Row, 0, len(out.Records)),
		NumberOfRecordsUpdated: out.NumberOfRecordsUpdated,
	}
	for i, record := range out.Records {
		row := make(Row, len(record))
		for j, field := range record {
			v, err := fromField(field)
			if err != nil {
				return nil, fmt.Errorf("record %d field %d: %w", i, j, err)
			}
			row[j] = v
		}
		result.Records = append(result.Records, row)
	}
	return result, nil
}

func (c *RDSDataClient) BeginTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	out, err := c.api.BeginTransaction(ctx, &rdsdata.BeginTransactionInput{
		ResourceArn: aws.String(req.ResourceARN),
		SecretArn:   aws.String(req.SecretARN),
		Database:    aws.String(req.Database),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.TransactionId), nil
}

func (c *RDSDataClient) CommitTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	out, err := c.api.CommitTransaction(ctx, &rdsdata.CommitTransactionInput{
		ResourceArn:   aws.String(req.ResourceARN),
		SecretArn:     aws.String(req.SecretARN),
		TransactionId: aws.String(req.TransactionID),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.TransactionStatus), nil
}

func (c *RDSDataClient) RollbackTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	out, err := c.api.RollbackTransaction(ctx, &rdsdata.RollbackTransactionInput{
		ResourceArn:   aws.String(req.ResourceARN),
		SecretArn:     aws.String(req.SecretARN),
		TransactionId: aws.String(req.TransactionID),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.TransactionStatus), nil
}

func toSQLParameters(params []NamedParameter) ([]types.SqlParameter, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make([]types.SqlParameter, 0, len(params))
	for _, p := range params {
		field, err := toField(p.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		out = append(out, types.SqlParameter{Name: aws.String(p.Name), Value: field})
	}
	return out, nil
}

func toField(v TypedValue) (types.Field, error) {
	switch v := v.(type) {
	case StringValue:
		return &types.FieldMemberStringValue{Value: string(v)}, nil
	case LongValue:
		return &types.FieldMemberLongValue{Value: int64(v)}, nil
	case DoubleValue:
		return &types.FieldMemberDoubleValue{Value: float64(v)}, nil
	case BooleanValue:
		return &types.FieldMemberBooleanValue{Value: bool(v)}, nil
	case BlobValue:
		return &types.FieldMemberBlobValue{Value: []byte(v)}, nil
	case NullValue, nil:
		return &types.FieldMemberIsNull{Value: true}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromField(f types.Field) (TypedValue, error) {
	switch f := f.(type) {
	case *types.FieldMemberStringValue:
		return StringValue(f.Value), nil
	case *types.FieldMemberLongValue:
		return LongValue(f.Value), nil
	case *types.FieldMemberDoubleValue:
		return DoubleValue(f.Value), nil
	case *types.FieldMemberBooleanValue:
		return BooleanValue(f.Value), nil
	case *types.FieldMemberBlobValue:
		return BlobValue(f.Value), nil
	case *types.FieldMemberIsNull:
		return NullValue{}, nil
	case nil:
		return NullValue{}, nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", f)
	}
}
