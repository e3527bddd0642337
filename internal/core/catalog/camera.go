package catalog

import (
	"context"
	"log/slog"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// IDPrefixCamera 摄像机唯一 ID 前缀
const IDPrefixCamera = "cam"

// FindCameras 分页查询摄像机列表
func (c Core) FindCameras(ctx context.Context, in *FindCameraInput) ([]*Camera, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")
	if in.Name != "" {
		query.Where("name LIKE ?", "%"+in.Name+"%")
	}
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}

	items := make([]*Camera, 0, in.Limit())
	total, err := c.store.Camera().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetCamera Query a single object
func (c Core) GetCamera(ctx context.Context, id string) (*Camera, error) {
	var out Camera
	if err := c.store.Camera().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddCamera Insert into database
func (c Core) AddCamera(ctx context.Context, in *AddCameraInput) (*Camera, error) {
	var out Camera
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}

	out.ID = c.uni.UniqueID(IDPrefixCamera)
	if out.Type == "" {
		out.Type = TypeRTSP
	}
	out.Status = StatusOffline
	if out.RTSPUrl == "" {
		out.RTSPUrl = out.BuildRTSPUrl()
	}

	if err := c.store.Camera().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// EditCamera Update object information
func (c Core) EditCamera(ctx context.Context, in *EditCameraInput, id string) (*Camera, error) {
	var out Camera
	if err := c.store.Camera().Edit(ctx, &out, func(b *Camera) {
		if err := copier.Copy(b, in); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
		if b.IP != "" {
			b.RTSPUrl = b.BuildRTSPUrl()
		}
		b.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Edit id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Edit id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// DelCamera Delete object
func (c Core) DelCamera(ctx context.Context, id string) (*Camera, error) {
	var out Camera
	if err := c.store.Camera().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// SetStreaming 启停拉流标记，实际拉流由外部录制管线执行，这里只是状态透传
func (c Core) SetStreaming(ctx context.Context, id string, enabled bool) (*Camera, error) {
	var out Camera
	if err := c.store.Camera().Edit(ctx, &out, func(b *Camera) {
		b.IsStreaming = enabled
		if enabled {
			b.Status = StatusOnline
			now := orm.Now()
			b.LastConnectedAt = &now
		} else {
			b.Status = StatusOffline
		}
		b.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`SetStreaming id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`SetStreaming id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// SetRecording 启停录制标记，透传给外部录制管线
func (c Core) SetRecording(ctx context.Context, id string, enabled bool) (*Camera, error) {
	var out Camera
	if err := c.store.Camera().Edit(ctx, &out, func(b *Camera) {
		b.IsRecording = enabled
		b.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`SetRecording id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`SetRecording id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
