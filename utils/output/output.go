// 结果输出，把试验统计写入MongoDB
package output

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
)

var log = logrus.WithField("module", "output")

// 集合名后缀
const (
	KindSummary    = "summary"
	KindTicks      = "ticks"
	KindVehicles   = "vehicles"
	KindPassengers = "passengers"
	KindSnapshots  = "snapshots"
)

// Writer MongoDB结果写入器
// 说明：每类结果写入集合{col}_{kind}
type Writer struct {
	client *mongo.Client
	path   config.OutputPath
}

// New 连接MongoDB
func New(c config.Output) *Writer {
	return &Writer{
		client: mongoutil.NewClient(c.URI),
		path:   c.Path,
	}
}

// Path 某类结果的写入位置
func Path(p config.OutputPath, kind string) config.OutputPath {
	return config.OutputPath{DB: p.DB, Col: fmt.Sprintf("%s_%s", p.Col, kind)}
}

// Docs 把结果切片转换为InsertMany需要的文档列表
func Docs[T any](items []T) []any {
	return lo.Map(items, func(item T, _ int) any { return item })
}

// Write 写入一类结果，空列表不写
func (w *Writer) Write(ctx context.Context, kind string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	path := Path(w.path, kind)
	coll := mongoutil.GetMongoColl(w.client, path)
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert into %s.%s: %w", path.DB, path.Col, err)
	}
	log.Infof("wrote %d docs into %s.%s", len(docs), path.DB, path.Col)
	return nil
}

// Close 断开连接
func (w *Writer) Close(ctx context.Context) error {
	return w.client.Disconnect(ctx)
}
