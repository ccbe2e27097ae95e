package passenger

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "passenger")
