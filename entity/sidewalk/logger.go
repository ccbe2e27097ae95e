package sidewalk

import "github.com/sirupsen/logrus"

// log 人行道与站点模块的日志记录器
var log = logrus.WithField("module", "sidewalk")
