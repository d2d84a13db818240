// Copyright 2024 Google Inc. All Rights Reserved.
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

// Package version holds build-time identity metadata, injected via
// -ldflags -X at build time rather than read from a VCS tag at runtime.
package version

// KompoVFSVersion is overwritten at build time with
// -ldflags "-X github.com/kompofs/kompofs/version.KompoVFSVersion=...".
// Left as "dev" for unstamped builds.
var KompoVFSVersion = "dev"
