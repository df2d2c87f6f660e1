// Copyright 2025 Poiesic Systems
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

package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored models. Timestamps are encoded as Unix
// microseconds, which is the precision the date index keys use.

var IDMUS = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	v = ID(tmp)
	return
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var FeedbackKindMUS = feedbackKindMUS{}

type feedbackKindMUS struct{}

func (s feedbackKindMUS) Marshal(v FeedbackKind, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s feedbackKindMUS) Unmarshal(bs []byte) (v FeedbackKind, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	v = FeedbackKind(tmp)
	return
}

func (s feedbackKindMUS) Size(v FeedbackKind) (size int) {
	return ord.String.Size(string(v))
}

func (s feedbackKindMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

var unixMicroMUS = timeUnixMicroMUS{}

type timeUnixMicroMUS struct{}

func (s timeUnixMicroMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (s timeUnixMicroMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	tmp, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = time.UnixMicro(tmp).UTC()
	return
}

func (s timeUnixMicroMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

func (s timeUnixMicroMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

var FeedbackMUS = feedbackMUS{}

type feedbackMUS struct{}

func (s feedbackMUS) Marshal(v Feedback, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.UserId, bs[n:])
	n += ord.String.Marshal(v.WineId, bs[n:])
	n += FeedbackKindMUS.Marshal(v.Kind, bs[n:])
	n += unixMicroMUS.Marshal(v.Timestamp, bs[n:])
	return n + unixMicroMUS.Marshal(v.InsertedAt, bs[n:])
}

func (s feedbackMUS) Unmarshal(bs []byte) (v Feedback, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.UserId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.WineId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Kind, n1, err = FeedbackKindMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = unixMicroMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unixMicroMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s feedbackMUS) Size(v Feedback) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.UserId)
	size += ord.String.Size(v.WineId)
	size += FeedbackKindMUS.Size(v.Kind)
	size += unixMicroMUS.Size(v.Timestamp)
	return size + unixMicroMUS.Size(v.InsertedAt)
}

func (s feedbackMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, FeedbackKindMUS.Skip, unixMicroMUS.Skip, unixMicroMUS.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

var FeedbackCountMUS = feedbackCountMUS{}

type feedbackCountMUS struct{}

func (s feedbackCountMUS) Marshal(v FeedbackCount, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Likes, bs)
	return n + varint.Int.Marshal(v.Dislikes, bs[n:])
}

func (s feedbackCountMUS) Unmarshal(bs []byte) (v FeedbackCount, n int, err error) {
	v.Likes, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Dislikes, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s feedbackCountMUS) Size(v FeedbackCount) (size int) {
	return varint.Int.Size(v.Likes) + varint.Int.Size(v.Dislikes)
}

func (s feedbackCountMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}
