package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored records. These are hand-written rather than
// generated; field order is part of the on-disk format and must not change.
var (
	IDMUS              = idMUS{}
	FingerprintMUS     = fingerprintMUS{}
	ProfileMUS         = profileMUS{}
	EmbeddingRecordMUS = embeddingRecordMUS{}
)

var vectorMUS = ord.NewSliceSer[float32](varint.Float32)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type fingerprintMUS struct{}

func (fingerprintMUS) Marshal(fp Fingerprint, bs []byte) int {
	return varint.Uint64.Marshal(uint64(fp), bs)
}

func (fingerprintMUS) Unmarshal(bs []byte) (Fingerprint, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return Fingerprint(v), n, err
}

func (fingerprintMUS) Size(fp Fingerprint) int {
	return varint.Uint64.Size(uint64(fp))
}

func (fingerprintMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type profileMUS struct{}

func (profileMUS) Marshal(p Profile, bs []byte) (n int) {
	n = IDMUS.Marshal(p.Id, bs)
	n += varint.Int.Marshal(p.Age, bs[n:])
	n += ord.String.Marshal(p.Gender, bs[n:])
	n += ord.String.Marshal(p.MaritalStatus, bs[n:])
	n += ord.String.Marshal(p.Caste, bs[n:])
	n += ord.String.Marshal(p.Sect, bs[n:])
	n += ord.String.Marshal(p.State, bs[n:])
	n += ord.String.Marshal(p.About, bs[n:])
	n += ord.String.Marshal(p.PartnerPreference, bs[n:])
	n += marshalTime(p.InsertedAt, bs[n:])
	n += marshalTime(p.UpdatedAt, bs[n:])
	return n
}

func (profileMUS) Unmarshal(bs []byte) (p Profile, n int, err error) {
	var n1 int
	if p.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if p.Age, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Gender, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.MaritalStatus, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Caste, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.Sect, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.State, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.About, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.PartnerPreference, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	return p, n, nil
}

func (profileMUS) Size(p Profile) (size int) {
	size = IDMUS.Size(p.Id)
	size += varint.Int.Size(p.Age)
	size += ord.String.Size(p.Gender)
	size += ord.String.Size(p.MaritalStatus)
	size += ord.String.Size(p.Caste)
	size += ord.String.Size(p.Sect)
	size += ord.String.Size(p.State)
	size += ord.String.Size(p.About)
	size += ord.String.Size(p.PartnerPreference)
	size += sizeTime(p.InsertedAt)
	size += sizeTime(p.UpdatedAt)
	return size
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(r EmbeddingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += FingerprintMUS.Marshal(r.Fingerprint, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (r EmbeddingRecord, n int, err error) {
	var n1 int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Fingerprint, n1, err = FingerprintMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (embeddingRecordMUS) Size(r EmbeddingRecord) (size int) {
	size = IDMUS.Size(r.Id)
	size += vectorMUS.Size(r.Vector)
	size += ord.String.Size(r.Text)
	size += FingerprintMUS.Size(r.Fingerprint)
	return size
}

// Timestamps are stored as microseconds since the Unix epoch.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
