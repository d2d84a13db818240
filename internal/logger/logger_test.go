// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func (ts *LoggerTest) TestWarnf_WritesSeverityAndMessage() {
	var buf bytes.Buffer
	SetOutput(&buf, "text")
	Warnf("dispatch: %s not routed", "getattrlist")
	assert.Contains(ts.T(), buf.String(), "severity=WARNING")
	assert.Contains(ts.T(), buf.String(), "dispatch: getattrlist not routed")
}

func (ts *LoggerTest) TestJSONFormat() {
	var buf bytes.Buffer
	SetOutput(&buf, "json")
	Errorf("bundle malformed")
	assert.Contains(ts.T(), buf.String(), `"severity":"ERROR"`)
}

func (ts *LoggerTest) TestParseLevel_DefaultsToWarning() {
	assert.Equal(ts.T(), LevelWarning, parseLevel(""))
	assert.Equal(ts.T(), LevelTrace, parseLevel("trace"))
	assert.Equal(ts.T(), LevelWarning, parseLevel("bogus"))
}
