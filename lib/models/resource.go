package models

// Resource type names used by the authorization dispatcher.
const (
	ResourceTypeJob           = "job"
	ResourceTypeUser          = "user"
	ResourceTypeRegion        = "region"
	ResourceTypeVendor        = "vendor"
	ResourceTypeSystemSetting = "systemSetting"
)

// Actions understood by the authorization dispatcher. Actions prefixed with
// "system" are reserved for owner-level operation.
const (
	ActionView         = "view"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionUpdateStatus = "updateStatus"
	ActionDispatch     = "dispatch"
	ActionApprove      = "approve"

	SystemActionPrefix = "system"
)

// Resource is the tagged union of everything the PermissionManager can
// authorize against. Concrete variants expose the ownership fields the
// manager's cascade needs; a variant without a vendor or region returns ""
// and is treated as unscoped.
type Resource interface {
	// ResourceType tags the variant for the role-action tables.
	ResourceType() string
	// ResourceKey identifies the instance for decision caching.
	ResourceKey() string
	// ResourceVendorID is the owning vendor, "" when unscoped.
	ResourceVendorID() string
	// ResourceRegion is the owning region, "" when unscoped.
	ResourceRegion() string
	// CreatorID is the id of the user that created the resource, "" when
	// unknown.
	CreatorID() string
}

// JobResource wraps a job for authorization.
type JobResource struct {
	Job *Job
}

func (r *JobResource) ResourceType() string { return ResourceTypeJob }

func (r *JobResource) ResourceKey() string {
	if r == nil {
		return ""
	}
	return r.Job.Key()
}

func (r *JobResource) ResourceVendorID() string {
	if r == nil || r.Job == nil {
		return ""
	}
	return r.Job.VendorID
}

func (r *JobResource) ResourceRegion() string {
	if r == nil || r.Job == nil {
		return ""
	}
	return r.Job.Region
}

func (r *JobResource) CreatorID() string {
	if r == nil || r.Job == nil {
		return ""
	}
	return r.Job.CreatedBy
}

// UserResource wraps a managed user account.
type UserResource struct {
	ID        string
	VendorID  string
	Region    string
	CreatedBy string
}

func (r *UserResource) ResourceType() string     { return ResourceTypeUser }
func (r *UserResource) ResourceKey() string      { return r.ID }
func (r *UserResource) ResourceVendorID() string { return r.VendorID }
func (r *UserResource) ResourceRegion() string   { return r.Region }
func (r *UserResource) CreatorID() string        { return r.CreatedBy }

// RegionResource wraps a region record. Regions are owner-managed; service
// providers are denied regardless of action.
type RegionResource struct {
	ID   string
	Name string
}

func (r *RegionResource) ResourceType() string     { return ResourceTypeRegion }
func (r *RegionResource) ResourceKey() string      { return r.ID }
func (r *RegionResource) ResourceVendorID() string { return "" }
func (r *RegionResource) ResourceRegion() string   { return r.Name }
func (r *RegionResource) CreatorID() string        { return "" }

// VendorResource wraps a vendor/business-entity record.
type VendorResource struct {
	ID        string
	Region    string
	CreatedBy string
}

func (r *VendorResource) ResourceType() string     { return ResourceTypeVendor }
func (r *VendorResource) ResourceKey() string      { return r.ID }
func (r *VendorResource) ResourceVendorID() string { return r.ID }
func (r *VendorResource) ResourceRegion() string   { return r.Region }
func (r *VendorResource) CreatorID() string        { return r.CreatedBy }

// SystemSettingResource wraps a global configuration record. Regional
// managers may read and update these but never delete them.
type SystemSettingResource struct {
	Name string
}

func (r *SystemSettingResource) ResourceType() string     { return ResourceTypeSystemSetting }
func (r *SystemSettingResource) ResourceKey() string      { return r.Name }
func (r *SystemSettingResource) ResourceVendorID() string { return "" }
func (r *SystemSettingResource) ResourceRegion() string   { return "" }
func (r *SystemSettingResource) CreatorID() string        { return "" }
