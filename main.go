package main

import (
	"context"
	"encoding/base64"
	"flag"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/task"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/output"
)

var (
	// 模拟任务名，用于日志与输出记录的前缀
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 按配置中的sweep段做参数扫描
	sweep = flag.Bool("sweep", false, "run the parameter sweep described in the config")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "main")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var err error
	if *configPath != "" {
		c, err = config.Load(*configPath)
	} else if *configData != "" {
		var file []byte
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
		c, err = config.Parse(file)
	} else {
		log.Info("no config specified, use default")
		c = config.Default()
	}
	if err != nil {
		log.Panicf("%v", err)
	}
	log.Infof("%+v", c)

	var results []*task.Result
	if *sweep {
		if c.Sweep == nil {
			log.Panic("-sweep needs a sweep section in the config")
		}
		results, err = task.Sweep(*job, c)
		if err != nil {
			log.Errorf("sweep: %v", err)
		}
	} else {
		t, err := task.NewContext(*job, c)
		if err != nil {
			log.Panicf("%v", err)
		}
		results = []*task.Result{t.Run()}
	}
	for _, res := range results {
		s := res.Summary
		log.Infof("%s: flow=%.4f passenger_flow=%.4f transit_speed=%.3f freight_speed=%.3f riding=%.1f waiting=%.1f violations=%d",
			s.Job, s.Flow, s.PassengerFlow, s.TransitSpeed, s.FreightSpeed, s.RidingTime, s.WaitingTime, s.Violations)
	}

	if c.Output == nil || c.Output.URI == "" {
		return
	}
	if err := write(c.Output, results); err != nil {
		log.Panicf("output: %v", err)
	}
}

// closeLogged 关闭输出，失败时只记录日志
func closeLogged(ctx context.Context, w interface{ Close(context.Context) error }) {
	if err := w.Close(ctx); err != nil {
		log.Errorf("output: close: %v", err)
	}
}

// write 把结果写入MongoDB
func write(c *config.Output, results []*task.Result) error {
	ctx := context.Background()
	w := output.New(*c)
	defer closeLogged(ctx, w)
	summaries := make([]task.Summary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, res.Summary)
		if err := w.Write(ctx, output.KindTicks, output.Docs(res.Ticks)); err != nil {
			return err
		}
		if err := w.Write(ctx, output.KindVehicles, output.Docs(res.Vehicles)); err != nil {
			return err
		}
		if err := w.Write(ctx, output.KindPassengers, output.Docs(res.Passengers)); err != nil {
			return err
		}
		if err := w.Write(ctx, output.KindSnapshots, output.Docs(res.Snapshots)); err != nil {
			return err
		}
	}
	return w.Write(ctx, output.KindSummary, output.Docs(summaries))
}
