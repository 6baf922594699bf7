package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// sortTimeLayout is fixed width so sort keys order lexically by time.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

// LoadAWSConfig loads credentials from the environment for region.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBClient stores washroom profiles and the hygiene log in DynamoDB.
// Profiles are keyed by deviceId. The log is partitioned by UTC day
// (logDate) and sorted by recordedAt, "<time>#<deviceId>".
type DynamoDBClient struct {
	svc           dynamoAPI
	profilesTable string
	logsTable     string
}

func NewDynamoDBClient(cfg aws.Config, profilesTable, logsTable string) *DynamoDBClient {
	return &DynamoDBClient{
		svc:           dynamodb.NewFromConfig(cfg),
		profilesTable: profilesTable,
		logsTable:     logsTable,
	}
}

func (c *DynamoDBClient) Get(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	out, err := c.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.profilesTable),
		Key: map[string]types.AttributeValue{
			"deviceId": &types.AttributeValueMemberS{Value: deviceID},
		},
	})
	if err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("failed to get profile %s: %w", deviceID, err)
	}
	if out.Item == nil {
		return domain.DeviceProfile{}, domain.ErrNotFound
	}
	var p domain.DeviceProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return p, nil
}

// Create writes p only if no profile exists for the device yet.
func (c *DynamoDBClient) Create(ctx context.Context, p domain.DeviceProfile) error {
	err := c.putProfile(ctx, p, "attribute_not_exists(deviceId)")
	if isConditionFailed(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Update overwrites an existing profile.
func (c *DynamoDBClient) Update(ctx context.Context, p domain.DeviceProfile) error {
	err := c.putProfile(ctx, p, "attribute_exists(deviceId)")
	if isConditionFailed(err) {
		return domain.ErrNotFound
	}
	return err
}

func (c *DynamoDBClient) putProfile(ctx context.Context, p domain.DeviceProfile, cond string) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.profilesTable),
		Item:                item,
		ConditionExpression: aws.String(cond),
	})
	if err != nil {
		return fmt.Errorf("failed to put profile %s: %w", p.DeviceID, err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// logItem is the DynamoDB shape of one score result.
type logItem struct {
	LogDate         string             `dynamodbav:"logDate"`
	RecordedAt      string             `dynamodbav:"recordedAt"`
	DeviceID        string             `dynamodbav:"deviceId"`
	Timestamp       time.Time          `dynamodbav:"timestamp"`
	Profile         string             `dynamodbav:"profile"`
	BaseScore       float64            `dynamodbav:"baseScore"`
	FinalScore      float64            `dynamodbav:"finalScore"`
	DecayApplied    float64            `dynamodbav:"decayApplied"`
	AirQuality      float64            `dynamodbav:"airQuality"`
	FloorMoisture   float64            `dynamodbav:"floorMoisture"`
	Humidity        float64            `dynamodbav:"humidity"`
	Temperature     float64            `dynamodbav:"temperature"`
	FootfallCount   int                `dynamodbav:"footfallCount"`
	ComponentScores map[string]float64 `dynamodbav:"componentScores"`
	Anomalies       []domain.Anomaly   `dynamodbav:"anomalies"`
}

func toLogItem(res domain.ScoreResult) logItem {
	ts := res.Timestamp.UTC()
	scores := make(map[string]float64, len(res.ComponentScores))
	for k, v := range res.ComponentScores {
		scores[string(k)] = v
	}
	anomalies := res.Anomalies
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	return logItem{
		LogDate:         ts.Format(time.DateOnly),
		RecordedAt:      ts.Format(sortTimeLayout) + "#" + res.DeviceID,
		DeviceID:        res.DeviceID,
		Timestamp:       ts,
		Profile:         string(res.Profile),
		BaseScore:       res.BaseScore,
		FinalScore:      res.FinalScore,
		DecayApplied:    res.DecayApplied,
		AirQuality:      res.Reading.AirQuality,
		FloorMoisture:   res.Reading.FloorMoisture,
		Humidity:        res.Reading.Humidity,
		Temperature:     res.Reading.Temperature,
		FootfallCount:   res.Reading.FootfallCount,
		ComponentScores: scores,
		Anomalies:       anomalies,
	}
}

func (it logItem) toResult() domain.ScoreResult {
	scores := make(domain.ComponentScores, len(it.ComponentScores))
	for k, v := range it.ComponentScores {
		scores[domain.Component(k)] = v
	}
	return domain.ScoreResult{
		DeviceID:  it.DeviceID,
		Timestamp: it.Timestamp,
		Reading: domain.SensorReading{
			DeviceID:      it.DeviceID,
			AirQuality:    it.AirQuality,
			FloorMoisture: it.FloorMoisture,
			Humidity:      it.Humidity,
			Temperature:   it.Temperature,
			FootfallCount: it.FootfallCount,
			ReceivedAt:    it.Timestamp,
		},
		ComponentScores: scores,
		BaseScore:       it.BaseScore,
		FinalScore:      it.FinalScore,
		DecayApplied:    it.DecayApplied,
		Anomalies:       it.Anomalies,
		Profile:         domain.ProfileName(it.Profile),
	}
}

func (c *DynamoDBClient) AppendScoreResult(ctx context.Context, res domain.ScoreResult) error {
	item, err := attributevalue.MarshalMap(toLogItem(res))
	if err != nil {
		return fmt.Errorf("failed to marshal score result: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.logsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put score result %s: %w", res.DeviceID, err)
	}
	return nil
}

// ResultsBetween queries each UTC day partition overlapping [from, to)
// and returns the results oldest first.
func (c *DynamoDBClient) ResultsBetween(ctx context.Context, from, to time.Time) ([]domain.ScoreResult, error) {
	from, to = from.UTC(), to.UTC()
	lo := &types.AttributeValueMemberS{Value: from.Format(sortTimeLayout)}
	hi := &types.AttributeValueMemberS{Value: to.Format(sortTimeLayout)}

	var out []domain.ScoreResult
	for day := from.Truncate(24 * time.Hour); day.Before(to); day = day.AddDate(0, 0, 1) {
		p := dynamodb.NewQueryPaginator(c.svc, &dynamodb.QueryInput{
			TableName:              aws.String(c.logsTable),
			KeyConditionExpression: aws.String("logDate = :day AND recordedAt BETWEEN :lo AND :hi"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":day": &types.AttributeValueMemberS{Value: day.Format(time.DateOnly)},
				":lo":  lo,
				":hi":  hi,
			},
			ScanIndexForward: aws.Bool(true),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to query hygiene log: %w", err)
			}
			var items []logItem
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal hygiene log: %w", err)
			}
			for _, it := range items {
				out = append(out, it.toResult())
			}
		}
	}
	return out, nil
}
